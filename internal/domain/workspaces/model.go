package workspaces

type Type string

const (
	TypePersonal Type = "personal"
	TypeBusiness Type = "business"
)

type Workspace struct {
	ID   string
	Name string
	Type Type
}
