// Package server holds the HTTP server configuration.
//
// The serve command reads the listen port, the API key protecting every
// route except the Swagger UI, and the graceful shutdown bound from Config.
package server
