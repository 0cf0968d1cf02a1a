// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing contract definitions and exercising
// generated callers. It is not intended for production usage.
package testutil
