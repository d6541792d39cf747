package types

// Version is the application version, overridden at build time with
// -ldflags "-X github.com/ehsan18t/easy-mingw-installer/pkg/domain/types.Version=..."
var Version = "dev"

// ServiceName is reported by the health endpoint and used as HTTP User-Agent prefix
const ServiceName = "easy-mingw"
