package docfetch

// Version is the release reported by the CLI and the status endpoints.
const Version = "1.0.0"
