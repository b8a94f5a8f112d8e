package app

import (
	"net"
	"strconv"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

// splitHostPort parses a "host:port" override for the serve command's
// --bind flag into the IP and numeric port registry.HTTPConfig expects.
func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, regerrors.NewMessageError("invalid --bind address "+addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, regerrors.NewMessageError("invalid --bind port in "+addr, err)
	}
	return host, uint16(port), nil
}
