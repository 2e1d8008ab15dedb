package config

// Version is the application version, shown by --version.
const Version = "0.1.0"
