// Package config handles configuration loading for the tutor commands.
//
// # Configuration File
//
// Default location:
//
//  1. Path from TUTOR_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/tutor/web.yaml
//  3. ~/.config/tutor/web.yaml
//
// A missing file is not an error for LoadOptional; Default() applies.
//
// # Environment Variable Expansion
//
//	session:
//	  secret: "${TUTOR_SESSION_SECRET}"
//
// TUTOR_API_BASE_URL, when set, overrides service.base_url after the file
// is read.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:8080"
//
//	service:
//	  base_url: "http://localhost:5002"
//	  timeout: "30s"
//
//	session:
//	  secret: "${TUTOR_SESSION_SECRET}"
//	  idle_timeout: "30m"
//	  cookie_ttl: "168h"
//
//	tailscale:
//	  enabled: false
//	  hostname: "tutor"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//	  funnel: false
//
//	backend:            # fake-tutor only
//	  http_addr: "localhost:5002"
//	  database_path: "tutor-backend.db"
//	  admin_user: "admin"
//	  admin_password: "${TUTOR_ADMIN_PASSWORD}"
//	  jwt_secret: "${TUTOR_JWT_SECRET}"
//	  token_ttl: "12h"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
