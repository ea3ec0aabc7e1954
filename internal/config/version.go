package config

// Version is the kbvault binary version. Release builds override it via:
// -ldflags "-X github.com/kbvault/kbvault/internal/config.Version=<tag>"
var Version = "0.4.0"
