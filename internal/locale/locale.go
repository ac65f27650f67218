// Package locale holds the user-facing text of the client.
package locale

import "strings"

// Catalog is the set of messages and labels shown to the user for one language.
type Catalog struct {
	Tag string

	StatusLabels   map[string]string
	PriorityLabels map[string]string
	// DateLayout renders due dates; it never carries a time component.
	DateLayout string

	UsernameRequired string
	UsernameTooShort string
	PasswordRequired string
	PasswordTooShort string
	EmailRequired    string
	EmailInvalid     string

	LoginFailed    string
	RegisterFailed string
	LoginLabel     string
	LoggingIn      string
	RegisterLabel  string
	Registering    string

	InvalidCredentials string
	DuplicateUsername  string
	DuplicateEmail     string
	NetworkError       string
	NetworkRegister    string
	Busy               string

	// Offline is the global error raised when connectivity is lost.
	Offline     string
	LogoutError string

	ConfirmDelete   string // %q is replaced by the task title
	PriorityPrefix  string
	DueDatePrefix   string
	CheckingSession string
}

var EN = Catalog{
	Tag: "en",
	StatusLabels: map[string]string{
		"todo":        "Todo",
		"in-progress": "In progress",
		"completed":   "Completed",
	},
	PriorityLabels: map[string]string{
		"low":    "Low",
		"medium": "Medium",
		"high":   "High",
	},
	DateLayout: "1/2/2006",

	UsernameRequired: "Username is required",
	UsernameTooShort: "Username must be at least 3 characters",
	PasswordRequired: "Password is required",
	PasswordTooShort: "Password must be at least 6 characters",
	EmailRequired:    "Email is required",
	EmailInvalid:     "Email is invalid",

	LoginFailed:    "Login failed. Please try again.",
	RegisterFailed: "Registration failed. Please try again.",
	LoginLabel:     "Log in",
	LoggingIn:      "Logging in...",
	RegisterLabel:  "Register",
	Registering:    "Registering...",

	InvalidCredentials: "Incorrect username or password",
	DuplicateUsername:  "This username is already taken",
	DuplicateEmail:     "This email is already registered",
	NetworkError:       "Network error",
	NetworkRegister:    "Network error while registering",
	Busy:               "Another request is still in progress",

	Offline:     "Network connection lost. Please check your internet connection.",
	LogoutError: "Something went wrong while logging out. Please try again.",

	ConfirmDelete:   "Are you sure you want to delete task %q?",
	PriorityPrefix:  "Priority",
	DueDatePrefix:   "Due",
	CheckingSession: "Checking your session...",
}

var VI = Catalog{
	Tag: "vi",
	StatusLabels: map[string]string{
		"todo":        "Todo",
		"in-progress": "Đang làm",
		"completed":   "Hoàn thành",
	},
	PriorityLabels: map[string]string{
		"low":    "Thấp",
		"medium": "Trung bình",
		"high":   "Cao",
	},
	DateLayout: "2/1/2006",

	UsernameRequired: "Username là bắt buộc",
	UsernameTooShort: "Username phải có ít nhất 3 ký tự",
	PasswordRequired: "Password là bắt buộc",
	PasswordTooShort: "Password phải có ít nhất 6 ký tự",
	EmailRequired:    "Email là bắt buộc",
	EmailInvalid:     "Email không hợp lệ",

	LoginFailed:    "Đăng nhập thất bại. Vui lòng thử lại.",
	RegisterFailed: "Đăng ký thất bại. Vui lòng thử lại.",
	LoginLabel:     "Đăng nhập",
	LoggingIn:      "Đang đăng nhập...",
	RegisterLabel:  "Đăng ký",
	Registering:    "Đang đăng ký...",

	InvalidCredentials: "Username hoặc password không đúng",
	DuplicateUsername:  "Tên tài khoản này đã được sử dụng",
	DuplicateEmail:     "Email này đã được đăng ký",
	NetworkError:       "Lỗi mạng",
	NetworkRegister:    "Lỗi mạng khi đăng ký",
	Busy:               "Một yêu cầu khác đang được xử lý",

	Offline:     "Mất kết nối mạng. Vui lòng kiểm tra kết nối internet.",
	LogoutError: "Có lỗi khi đăng xuất. Vui lòng thử lại.",

	ConfirmDelete:   "Bạn có chắc muốn xóa task %q?",
	PriorityPrefix:  "Ưu tiên",
	DueDatePrefix:   "Hạn",
	CheckingSession: "Đang kiểm tra phiên đăng nhập...",
}

// Lookup returns the catalog for a language tag such as "vi" or "vi-VN".
// Unknown tags fall back to English.
func Lookup(tag string) Catalog {
	base, _, _ := strings.Cut(strings.ToLower(tag), "-")
	switch base {
	case "vi":
		return VI
	default:
		return EN
	}
}
