package transfer

// Request shapes for the LinkedIn ugcPosts API.

type LinkedinShareRequest struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent LinkedinSpecificContent `json:"specificContent"`
	Visibility      LinkedinVisibility      `json:"visibility"`
}

type LinkedinSpecificContent struct {
	ShareContent LinkedinShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type LinkedinShareContent struct {
	ShareCommentary    LinkedinShareCommentary `json:"shareCommentary"`
	ShareMediaCategory string                  `json:"shareMediaCategory"`
}

type LinkedinShareCommentary struct {
	Text string `json:"text"`
}

type LinkedinVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

type LinkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}
