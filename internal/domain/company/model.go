package company

// Profile реквизиты компании, привязанной к рабочему пространству
type Profile struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	INN         string `json:"inn"`
	KPP         string `json:"kpp"`
}
