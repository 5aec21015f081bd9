package domain

// User attribute names
const (
	AttrLogin    = "login"
	AttrEmail    = "email"
	AttrPassword = "password"
	AttrRole     = "role"
	AttrNickname = "nickname"
)

// User typed view over a node of type user
type User struct {
	*Node
}

// NewUser creates an unsaved user node
func NewUser(login, email, role string) User {
	n := NewNode(NodeTypeUser)
	n.Set(AttrLogin, login)
	n.Set(AttrEmail, email)
	n.Set(AttrRole, role)
	n.Key = ContentKey(NodeTypeUser, login)
	return User{Node: n}
}

// AsUser returns the user view of n, or false when n is not a user node
func AsUser(n *Node) (User, bool) {
	if n == nil || n.Type != NodeTypeUser {
		return User{}, false
	}
	return User{Node: n}, true
}

func (u User) Login() string        { return u.String(AttrLogin) }
func (u User) Email() string        { return u.String(AttrEmail) }
func (u User) Role() string         { return u.String(AttrRole) }
func (u User) Nickname() string     { return u.String(AttrNickname) }
func (u User) PasswordHash() string { return u.String(AttrPassword) }

// Identity returns the caller identity represented by this user
func (u User) Identity() *Identity {
	return &Identity{ID: u.Login(), Role: u.Role()}
}
