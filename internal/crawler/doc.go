// Package crawler defines the domain types, component interfaces, and error
// taxonomy shared by the discovery, extraction, and persistence packages of
// the dream symbol crawler.
package crawler
