// Package artifactapi implements the Hypha artifact-manager RPC surface over
// HTTP. Every method maps to one endpoint under
// {server}/public/services/artifact-manager/{method}.
package artifactapi
