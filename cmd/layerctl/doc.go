// Command layerctl is a command-line client for the galaxy layer registry.
//
// Usage:
//
//	layerctl register alice -p secret-pass
//	layerctl login alice -p secret-pass      # saves the token
//	layerctl create base ipfs://Qm...
//	layerctl resolve <user-id> base
//	layerctl list [user-id]
//
// Settings come from flags, then LAYERCTL_SERVER / LAYERCTL_TOKEN /
// LAYERCTL_TIMEOUT, then ~/.config/layerctl/config.yaml.
package main
