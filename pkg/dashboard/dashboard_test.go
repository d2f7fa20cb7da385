package dashboard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboardpkg "github.com/goliatone/go-retail-dashboard/pkg/dashboard"
)

func TestBootstrapThroughFacade(t *testing.T) {
	app, err := dashboardpkg.Bootstrap(context.Background(), dashboardpkg.BootstrapOptions{})
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	layout, err := app.Service.ConfigurePage(context.Background(), dashboardpkg.ViewerContext{UserID: "1"}, dashboardpkg.PagePerformance)
	require.NoError(t, err)
	assert.Equal(t, dashboardpkg.PagePerformance, layout.Page)
}
