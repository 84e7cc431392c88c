// Package crm is a thin client for the CRM e-commerce API.
//
// It owns transport concerns only: the Api-Token header, a fresh correlation
// token per attempt, a client-side rate limit, per-attempt timeouts and a
// fixed-delay retry of the whole request on transport failure or any non-2xx
// status. Send never panics or returns an error value; the caller branches on
// Response.OK and stores Response.Body or Response.Describe verbatim.
//
// # Values and Queries
//
// Value is a tagged union of null, string, integer and decimal with one JSON
// encoding per variant. Query renders list requests such as
//
//	ecomCustomers?filters[connectionid]=1&filters[email]=a%40b.com
//
// # Usage
//
//	client := crm.NewHTTPClient(cfg.CRM, logger)
//	resp := client.Send(ctx, http.MethodGet, crm.Query{Resource: "ecomOrders", Filters: filters}.Path(), nil)
//	if !resp.OK() {
//	    return resp.Describe()
//	}
package crm
