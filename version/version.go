package version

// Version is the analyzer version stamped into report metadata.
const Version = "1.0.0"
