package ecommerce

import (
	"context"
	"fmt"
	"net/http"

	"ecomm-sync/core/crm"

	"go.uber.org/zap"
)

// CustomerResolver finds or creates the single remote customer for an email
// within a connection.
type CustomerResolver struct {
	client crm.Client
	logger *zap.Logger
}

// NewCustomerResolver creates a resolver using client.
func NewCustomerResolver(client crm.Client, logger *zap.Logger) *CustomerResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerResolver{client: client, logger: logger}
}

// Resolve returns the remote customer id for (connectionID, email).
//
// The customer is looked up first and only created when the lookup succeeded
// and returned an empty list. A failed lookup, or one whose body carries no
// ecomCustomers list, is returned as an error without attempting a create.
func (r *CustomerResolver) Resolve(ctx context.Context, connectionID, email, externalID string) (crm.ID, error) {
	query := crm.Query{
		Resource: "ecomCustomers",
		Filters: []crm.Filter{
			{Name: "connectionid", Value: crm.String(connectionID)},
			{Name: "email", Value: crm.String(email)},
		},
	}

	resp := r.client.Send(ctx, http.MethodGet, query.Path(), nil)
	if !resp.OK() {
		return "", remoteError("find customer", resp)
	}

	var found []remoteRef
	ok, err := crm.DecodeRoot(resp.Body, "ecomCustomers", &found)
	if err != nil {
		return "", fmt.Errorf("customer lookup: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("customer lookup response has no ecomCustomers: %s", resp.Body)
	}
	if len(found) > 0 {
		if found[0].ID == "" {
			return "", fmt.Errorf("customer lookup for %s returned a blank id", email)
		}
		return found[0].ID, nil
	}

	return r.create(ctx, connectionID, email, externalID)
}

func (r *CustomerResolver) create(ctx context.Context, connectionID, email, externalID string) (crm.ID, error) {
	payload := EcomCustomerWrapper{Customer: EcomCustomer{
		ConnectionID:     connectionID,
		ExternalID:       externalID,
		Email:            email,
		AcceptsMarketing: "1",
	}}

	r.logger.Info("Creating remote customer", zap.String("external_id", externalID))
	resp := r.client.Send(ctx, http.MethodPost, "ecomCustomers", payload)
	if !resp.OK() {
		return "", remoteError("create customer", resp)
	}

	var created EcomCustomer
	if _, err := crm.DecodeRoot(resp.Body, "ecomCustomer", &created); err != nil {
		return "", fmt.Errorf("customer create: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("customer id is blank after create for %s", email)
	}

	r.logger.Info("Remote customer created", zap.String("customer_id", created.ID.String()))
	return created.ID, nil
}
