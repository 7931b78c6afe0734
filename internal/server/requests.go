package server

// Request payloads. The msg tag overrides the validator's default message
// per failing rule.

type registerRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=20" msg:"notblank:Username cannot be blank|*:Username must be between 3 and 20 characters"`
	Email    string `json:"email" validate:"notblank,email,max=100" msg:"notblank:Email cannot be blank|email:Email should be valid|max:Email must be less than 100 characters"`
	Password string `json:"password" validate:"notblank,min=6,max=100" msg:"notblank:Password cannot be blank|*:Password must be between 6 and 100 characters"`
}

type loginRequest struct {
	Username string `json:"username" validate:"notblank" msg:"notblank:Username cannot be blank"`
	Password string `json:"password" validate:"notblank" msg:"notblank:Password cannot be blank"`
}

type postRequest struct {
	Title    string `json:"title" validate:"notblank,max=255" msg:"notblank:Title cannot be blank"`
	Content  string `json:"content" validate:"notblank" msg:"notblank:Content cannot be blank"`
	ImageURI string `json:"imageUri"`
}

type updatePostRequest struct {
	Title    string  `json:"title" validate:"notblank,max=255" msg:"notblank:Title cannot be blank"`
	Content  string  `json:"content" validate:"notblank" msg:"notblank:Content cannot be blank"`
	ImageURI *string `json:"imageUri"`
}

type commentRequest struct {
	Content string `json:"content" validate:"notblank" msg:"notblank:Comment content cannot be blank"`
}

type updateProfileRequest struct {
	Username          *string `json:"username" validate:"omitempty,min=3,max=20" msg:"*:Username must be between 3 and 20 characters"`
	Email             *string `json:"email" validate:"omitempty,email" msg:"email:Email should be valid"`
	ProfilePictureURI *string `json:"profilePictureUri"`
}

type createUserRequest struct {
	Username          string   `json:"username" validate:"notblank,min=3,max=50" msg:"notblank:Username cannot be blank|*:Username must be between 3 and 50 characters"`
	Email             string   `json:"email" validate:"notblank,email,max=100" msg:"notblank:Email cannot be blank|email:Email should be valid|max:Email must be less than 100 characters"`
	Password          string   `json:"password" validate:"notblank,min=6,max=100" msg:"notblank:Password cannot be blank|*:Password must be between 6 and 100 characters"`
	Roles             []string `json:"roles" validate:"min=1" msg:"*:User must have at least one role"`
	ProfilePictureURI string   `json:"profilePictureUri"`
	Enabled           *bool    `json:"enabled"`
}

type adminUpdateUserRequest struct {
	Username          *string  `json:"username" validate:"omitempty,min=3,max=50" msg:"*:Username must be between 3 and 50 characters"`
	Email             *string  `json:"email" validate:"omitempty,email,max=100" msg:"email:Email should be valid|max:Email must be less than 100 characters"`
	Password          *string  `json:"password" validate:"omitempty,min=6,max=100" msg:"*:Password must be between 6 and 100 characters"`
	ProfilePictureURI *string  `json:"profilePictureUri"`
	Roles             []string `json:"roles"`
	Enabled           *bool    `json:"enabled"`
}

type roleUpdateRequest struct {
	Roles []string `json:"roles" validate:"min=1" msg:"*:Roles cannot be empty"`
}

type statusUpdateRequest struct {
	Enabled *bool `json:"enabled" validate:"required" msg:"required:Enabled status cannot be null"`
}

type chatCreateRequest struct {
	OtherUserID uint `json:"otherUserId" validate:"gt=0" msg:"*:Other user ID cannot be blank"`
}

type messageRequest struct {
	Message string `json:"message" validate:"notblank,max=4000" msg:"notblank:Message content cannot be blank"`
}
