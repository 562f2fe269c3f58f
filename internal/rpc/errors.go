package rpc

// RpcError is an RPC failure with a stable code and token.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes
const (
	RpcUNKNOWN          = -1
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	RpcMISSING_COMMAND  = 2
	RpcACT_NOT_FOUND    = 19
	RpcSTREAM_MALFORMED = 26
	RpcNOT_ENABLED      = 31
	RpcTX_MALFORMED     = 60
	RpcFEED_NOT_FOUND   = 61
	RpcNO_ROUND_DATA    = 62
	RpcACT_MALFORMED    = 63
)

// NewRpcError creates an error.
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorMissingCommand() *RpcError {
	return NewRpcError(RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing command field")
}

func RpcErrorTxMalformed(message string) *RpcError {
	return NewRpcError(RpcTX_MALFORMED, "txMalformed", "txMalformed", message)
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", message)
}

func RpcErrorActNotFound(address string) *RpcError {
	return NewRpcError(RpcACT_NOT_FOUND, "actNotFound", "actNotFound", "Account not found: "+address)
}

func RpcErrorFeedNotFound(address string) *RpcError {
	return NewRpcError(RpcFEED_NOT_FOUND, "feedNotFound", "feedNotFound", "Feed not found: "+address)
}

func RpcErrorNoRoundData(message string) *RpcError {
	return NewRpcError(RpcNO_ROUND_DATA, "noRoundData", "noRoundData", message)
}

func RpcErrorStreamMalformed(message string) *RpcError {
	return NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", message)
}
