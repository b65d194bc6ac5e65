package transport

type RegisterRequest struct {
	Username  string `json:"username"   form:"username"   validate:"required,max=150,username"`
	Email     string `json:"email"      form:"email"      validate:"omitempty,max=254,email"`
	FirstName string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName  string `json:"last_name"  form:"last_name"  validate:"max=150"`
	Password  string `json:"password"   form:"password"   validate:"required"`
}

// LoginRequest takes the identifier in username, or in email when username
// is empty.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type RefreshRequest struct {
	Refresh string `json:"refresh" form:"refresh"`
}

type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessResponse struct {
	Access string `json:"access"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}
