package config

// RPCRoute is the default go-chi route for JSON-RPC requests.
var RPCRoute string = "/rpc"

// NodeVersion is the version of the node. It can be set by the build system or manually.
// If not set, it will return "v0.0.0-none" by default
var NodeVersion string

var MetaDir string = "./.meta"

// RuntimeSuffix tags the node's runtime directory under the OS temp dir.
var RuntimeSuffix string = "rpcnode-runtime"

func init() {
	if NodeVersion == "" {
		NodeVersion = "v0.0.0-none"
	}
}
