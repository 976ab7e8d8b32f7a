package core

import (
	"github.com/hashicorp/go-version"
)

// ProtocolVersion is the server's own version string, bumped on any
// wire-incompatible change to the action table or wire message shape.
const ProtocolVersion = "1.0.0"

// CompatibleVersion checks a client's advertised protocol version against
// the server's with semantic-version compatibility rules: a client is
// accepted if its
// major version matches the server's. An empty clientVersion is treated as
// compatible, for clients that predate version negotiation entirely.
func CompatibleVersion(clientVersion string) bool {
	if clientVersion == "" {
		return true
	}
	client, err := version.NewVersion(clientVersion)
	if err != nil {
		return false
	}
	server, err := version.NewVersion(ProtocolVersion)
	if err != nil {
		return false
	}
	return client.Segments()[0] == server.Segments()[0]
}
