package permissions

import "fmt"

const (
	// ManageExchanges grants read access to every exchange.
	ManageExchanges = "exchange:manage"
	// ManageWebhooks grants access to the webhook endpoints.
	ManageWebhooks = "webhook:manage"
	// Session is the empty permission, any authenticated user is allowed.
	Session = ""
)

// Route returns the key identifying a route in the permission tables.
func Route(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

// Whitelist returns the routes served without authentication.
func Whitelist() map[string]struct{} {
	return map[string]struct{}{
		Route("GET", "/health"):  {},
		Route("GET", "/metrics"): {},
	}
}

// AllPermissionsByRoute returns the permission required by every
// authenticated route.
func AllPermissionsByRoute() map[string]string {
	return map[string]string{
		Route("POST", "/exchanges"):                       Session,
		Route("GET", "/exchanges"):                        Session,
		Route("GET", "/exchanges/manage"):                 ManageExchanges,
		Route("GET", "/exchanges/:id"):                    Session,
		Route("PATCH", "/exchanges/:id/shipping"):         Session,
		Route("PATCH", "/exchanges/:id/confirm"):          Session,
		Route("POST", "/exchanges/:id/cancel"):            Session,
		Route("GET", "/exchanges/:id/rating-eligibility"): Session,
		Route("GET", "/exchanges/:id/transitions"):        Session,
		Route("POST", "/webhooks"):                        ManageWebhooks,
		Route("GET", "/webhooks"):                         ManageWebhooks,
		Route("DELETE", "/webhooks/:id"):                  ManageWebhooks,
	}
}

// Validate makes sure no route is both whitelisted and restricted.
func Validate() error {
	whitelist := Whitelist()
	for route := range AllPermissionsByRoute() {
		if _, ok := whitelist[route]; ok {
			return fmt.Errorf("route %s is both whitelisted and restricted", route)
		}
	}
	return nil
}
