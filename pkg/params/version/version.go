package version

// Version is set at build time with
// -ldflags "-X github.com/fabric8io/fabric8-generator/pkg/params/version.Version=v1.2.3".
var Version = "devel"
