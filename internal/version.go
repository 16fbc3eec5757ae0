package internal

// Version is the verbdeck release, shown by --version.
const Version = "0.3.1"
