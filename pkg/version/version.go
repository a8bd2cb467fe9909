package version

// Version is set at build time with -ldflags "-X github.com/maxvaer/scanport/pkg/version.Version=...".
var Version = "dev"
