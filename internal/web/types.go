package web

// HomeData drives the landing page.
type HomeData struct {
	GlobalBoards      bool
	GlobalSessionID   string
	PollSingleSeconds int
	PollMultiSeconds  int
}
