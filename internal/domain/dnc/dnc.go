// Package dnc provides the Do Not Call list entity for per-organization
// suppression of phone numbers.
package dnc
