package artifactapi

// Method is an artifact-manager endpoint name.
type Method string

// Artifact-manager endpoints used by the client
const (
	MethodListFiles         Method = "list_files"
	MethodGetFile           Method = "get_file"
	MethodPutFile           Method = "put_file"
	MethodRemoveFile        Method = "remove_file"
	MethodStartMultipart    Method = "put_file_start_multipart"
	MethodCompleteMultipart Method = "put_file_complete_multipart"
	MethodEdit              Method = "edit"
	MethodCommit            Method = "commit"
	MethodDiscard           Method = "discard"
)

// ServicePath is the path of the artifact manager below the server URL.
const ServicePath = "/public/services/artifact-manager"
