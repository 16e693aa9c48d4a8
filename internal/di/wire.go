//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/jobhive/jobhive/internal/app"
)

func InitializeAuthApp(ctx context.Context) (*app.App, error) {
	wire.Build(AuthAppSet)
	return nil, nil
}

func InitializeJobApp(ctx context.Context) (*app.App, error) {
	wire.Build(JobAppSet)
	return nil, nil
}

func InitializeGatewayApp(ctx context.Context) (*app.App, error) {
	wire.Build(GatewayAppSet)
	return nil, nil
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	wire.Build(MigrationSet)
	return nil, nil
}
