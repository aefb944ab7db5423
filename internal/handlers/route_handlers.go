package handlers

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ReturnType is the JSON envelope every route answers with.
type ReturnType struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(message string, data interface{}) ReturnType {
	return ReturnType{Status: StatusSuccess, Message: message, Data: data}
}

func Failure(message string, err error) ReturnType {
	resp := ReturnType{Status: StatusError, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
