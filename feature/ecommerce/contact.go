package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecomm-sync/core/crm"
)

// activeListStatus is the contact list status of a subscribed contact.
const activeListStatus = "1"

// ContactChecker decides list eligibility: a record is only propagated when
// its contact exists and is subscribed to at least one list.
type ContactChecker struct {
	client crm.Client
	cache  *crm.Cache[bool]
}

// NewContactChecker creates a checker caching results for ttl.
func NewContactChecker(client crm.Client, ttl time.Duration) *ContactChecker {
	return &ContactChecker{client: client, cache: crm.NewCache[bool](ttl)}
}

// Eligible reports whether email belongs to a contact on an active list.
// A failed lookup is an error, never a skip.
func (c *ContactChecker) Eligible(ctx context.Context, email string) (bool, error) {
	key := strings.TrimSpace(email)
	return c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (bool, error) {
		return c.lookup(ctx, key)
	})
}

func (c *ContactChecker) lookup(ctx context.Context, email string) (bool, error) {
	query := crm.Query{
		Resource: "contacts",
		Filters:  []crm.Filter{{Name: "email", Value: crm.String(email)}},
		Include:  []string{"contactLists"},
	}

	resp := c.client.Send(ctx, http.MethodGet, query.Path(), nil)
	if !resp.OK() {
		return false, remoteError("find contact", resp)
	}

	var contacts []contact
	ok, err := crm.DecodeRoot(resp.Body, "contacts", &contacts)
	if err != nil {
		return false, fmt.Errorf("contact lookup: %w", err)
	}
	if !ok {
		return false, fmt.Errorf("contact lookup response has no contacts: %s", resp.Body)
	}
	if len(contacts) == 0 {
		return false, nil
	}

	var lists []contactList
	if _, err := crm.DecodeRoot(resp.Body, "contactLists", &lists); err != nil {
		return false, fmt.Errorf("contact lookup: %w", err)
	}
	for _, l := range lists {
		if l.Status == activeListStatus {
			return true, nil
		}
	}
	return false, nil
}
