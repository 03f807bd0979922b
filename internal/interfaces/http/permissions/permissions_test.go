package permissions_test

import (
	"testing"

	"github.com/barterbay/barterd/internal/interfaces/http/permissions"
	"github.com/stretchr/testify/require"
)

func TestValidatePermissions(t *testing.T) {
	require.NoError(t, permissions.Validate())
}

func TestManageRoutes(t *testing.T) {
	all := permissions.AllPermissionsByRoute()

	require.Equal(
		t, permissions.ManageExchanges, all[permissions.Route("GET", "/exchanges/manage")],
	)
	for _, route := range []string{
		permissions.Route("POST", "/webhooks"),
		permissions.Route("GET", "/webhooks"),
		permissions.Route("DELETE", "/webhooks/:id"),
	} {
		require.Equal(t, permissions.ManageWebhooks, all[route], route)
	}
}
