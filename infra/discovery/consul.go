// Package discovery registers a running service instance with consul.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carrec/platform/config"
	"github.com/hashicorp/consul/api"
)

// Registrar announces one instance. Entries are not withdrawn on shutdown.
type Registrar interface {
	Register(ctx context.Context) error
}

// Agent is the subset of the consul agent API the registrar needs.
type Agent interface {
	ServiceRegisterOpts(service *api.AgentServiceRegistration, opts api.ServiceRegisterOpts) error
}

type consulRegistrar struct {
	agent  Agent
	reg    *api.AgentServiceRegistration
	logger *slog.Logger
}

// NewConsul connects to the agent named in cfg.Discovery.
func NewConsul(cfg *config.Config, logger *slog.Logger) (Registrar, error) {
	client, err := api.NewClient(&api.Config{Address: cfg.Discovery.ConsulAddr})
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return NewRegistrar(client.Agent(), cfg, logger), nil
}

// NewRegistrar builds the registration announced for this instance.
func NewRegistrar(agent Agent, cfg *config.Config, logger *slog.Logger) Registrar {
	return &consulRegistrar{
		agent: agent,
		reg: &api.AgentServiceRegistration{
			ID:      cfg.Service.InstanceID,
			Name:    cfg.Service.Name,
			Address: cfg.Service.Address,
			Port:    cfg.HTTP.Port,
			Tags:    cfg.Service.Tags,
			Meta:    map[string]string{"instance_id": cfg.Service.InstanceID},
		},
		logger: logger.With("component", "discovery"),
	}
}

func (r *consulRegistrar) Register(ctx context.Context) error {
	if err := r.agent.ServiceRegisterOpts(r.reg, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return fmt.Errorf("register %s: %w", r.reg.ID, err)
	}
	r.logger.Info("SERVICE_REGISTERED", "service", r.reg.Name, "id", r.reg.ID, "port", r.reg.Port)
	return nil
}
