// Package config handles loading Courier's configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/courier/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. COURIER_API_URL and COURIER_API_TOKEN, when set, win over the file
//
// LoadEnv can be called first to populate those variables from a .env file.
//
// # TOML Format
//
//	api_url = "https://mail.example.com"
//	api_token = "issued-by-the-backend"
//	request_timeout = "30s"
//	page_size = 10
//	workbook_types = ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"]
//	csv_types = ["text/csv", "application/csv"]
//	csv_delimiter = ","
//	log_file = "~/.local/state/courier/courier.log"
//
// Every field is optional. An explicitly empty type list disables that format.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, and values
// that cannot be honoured (non-positive timeouts, negative page sizes,
// multi-character delimiters). Missing config files are NOT an error.
//
// The returned Config is passed explicitly to the recipient pipeline
// (RecipientOptions) and to the API client (ClientOptions).
package config
