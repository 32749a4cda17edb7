package main

import (
	"context"
	"fmt"

	"github.com/jacksonlee411/provider-portal/internal/bootstrap"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/configuration"
	"github.com/jacksonlee411/provider-portal/pkg/migrations"
)

// overrides are flag values applied on top of the loaded configuration.
type overrides struct {
	file               string
	applyDeactivations bool
}

func (o overrides) apply(conf *configuration.Configuration) {
	if o.file != "" {
		conf.Registry.UseLocalFile = true
		conf.Registry.LocalFilePath = o.file
	}
	if o.applyDeactivations {
		conf.Sync.ApplyDeactivations = true
	}
}

type syncRuntime interface {
	Trigger(ctx context.Context) (*syncresult.Result, error)
	Preview(ctx context.Context) (*services.Preview, error)
	Migrate(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]migrations.Status, error)
	Close(ctx context.Context) error
}

type opener func(ctx context.Context, envFiles []string, o overrides) (syncRuntime, error)

type cliRuntime struct {
	rt *bootstrap.Runtime
}

func openRuntime(ctx context.Context, envFiles []string, o overrides) (syncRuntime, error) {
	conf, err := configuration.Load(envFiles...)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
	}
	o.apply(conf)
	if err := conf.Registry.Validate(); err != nil {
		conf.Unload()
		return nil, withCode(exitUsage, err)
	}

	rt, err := bootstrap.New(ctx, conf, bootstrap.Options{})
	if err != nil {
		conf.Unload()
		return nil, withCode(exitFatal, err)
	}
	return &cliRuntime{rt: rt}, nil
}

func (c *cliRuntime) Trigger(ctx context.Context) (*syncresult.Result, error) {
	return c.rt.Sync.Trigger(ctx, services.SourceCLI)
}

func (c *cliRuntime) Preview(ctx context.Context) (*services.Preview, error) {
	return c.rt.Sync.Preview(ctx)
}

func (c *cliRuntime) Migrate(ctx context.Context) error {
	return c.rt.Migrate(ctx)
}

func (c *cliRuntime) MigrationStatus(ctx context.Context) ([]migrations.Status, error) {
	return c.rt.App.Migrations().Status(ctx)
}

func (c *cliRuntime) Close(ctx context.Context) error {
	defer c.rt.Conf.Unload()
	return c.rt.Close(ctx)
}
