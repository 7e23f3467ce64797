package api

import (
	"context"

	"roofquote/adapters/catalog"
	"roofquote/adapters/render"
	"roofquote/adapters/storage"
	"roofquote/adapters/webhook"
	"roofquote/core/workflow"
	"roofquote/internal/config"
	"roofquote/internal/logging"
)

// NewFromConfig assembles a Server and its collaborators from configuration.
// The returned close function releases the store.
func NewFromConfig(ctx context.Context, cfg *config.Config, version string) (*Server, func() error, error) {
	cat, err := catalog.FromConfig(cfg.Pricing)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error {
		if store == nil {
			return nil
		}
		return store.Close()
	}

	renderer := render.New(render.Options{
		CompanyName: cfg.Proposals.CompanyName,
		Currency:    cat.Model.Currency,
		OutputDir:   cfg.Proposals.OutputDir,
		SkipPDF:     cfg.Proposals.SkipPDF,
	})

	var sender workflow.Sender = webhook.LogSender{Logger: logging.Named(logging.ComponentDelivery)}
	if cfg.Delivery.Endpoint != "" {
		sender = webhook.New(webhook.FromDelivery(cfg.Delivery))
	}

	opts := Options{
		Version:             version,
		Catalog:             cat,
		Renderer:            renderer,
		Sender:              sender,
		Store:               store,
		CollaboratorTimeout: cfg.Server.CollaboratorTimeout(),
	}

	s, err := NewServer(opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}
