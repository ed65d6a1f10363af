package session

// Keys of the persisted session. Their presence together is what makes a
// stored session valid.
const (
	TokenKey = "authToken"
	UserKey  = "authUser"
)

// Storage is the durable string store the session is persisted to, shaped
// like browser local storage. Get reports ok=false for a missing key;
// deleting a missing key is not an error.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
