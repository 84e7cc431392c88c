// Package ecommerce synchronizes staged ticket orders into the CRM's
// e-commerce model.
//
// A staged record moves through the reconcile status lifecycle. For every
// pending record the Adapter:
//
//  1. optionally checks that the contact is subscribed to an active list
//     (otherwise the record is skipped),
//  2. resolves the single remote customer for the connection and email,
//     looking it up before ever creating it,
//  3. looks the order up by its external id to choose create or update,
//  4. builds the payload from exact decimals and aggregated ticket lines,
//  5. pushes it and confirms the echoed order id.
//
// Remote failures end in status E with the response text stored verbatim. A
// successful call whose response does not confirm the expected id ends in Z
// and is never retried automatically.
//
// # Staging Store
//
// Store wraps the staging tables. The outcome write is a single UPDATE
// conditioned on the row still being pending, so a record is never moved out
// of a terminal status by a late writer.
//
// # Money
//
// Amounts stay decimal.Decimal until serialization, where Amount converts them
// to integer minor units rounding half away from zero (12.345 -> 1235).
package ecommerce
