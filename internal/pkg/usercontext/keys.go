package usercontext

// KeyUserContext is the Locals key the auth middleware stores the caller under.
const KeyUserContext = "USER_CONTEXT"
