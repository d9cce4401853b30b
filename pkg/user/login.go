package user

// LoginRequest is the wallet-signature login payload
type LoginRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Message       string `json:"message" validate:"required"`
	Signature     string `json:"signature" validate:"required"`
}

// LoginResponse is the successful login payload
type LoginResponse struct {
	User          *User  `json:"user"`
	Token         string `json:"token"`
	WalletAddress string `json:"walletAddress"`
	ExpiresIn     string `json:"expiresIn"`
}

// SetKeysRequest carries the user's SNIP-20 viewing keys
type SetKeysRequest struct {
	SscrtKey string `json:"sscrt_key" validate:"required"`
	SusdcKey string `json:"susdc_key" validate:"required"`
}
