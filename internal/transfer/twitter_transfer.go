package transfer

type TweetRequest struct {
	Text string `json:"text"`
}

type TweetResponse struct {
	Data TweetData `json:"data"`
}

type TweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type TwitterTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

type TwitterUserResponse struct {
	Data TwitterUser `json:"data"`
}

type TwitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}
