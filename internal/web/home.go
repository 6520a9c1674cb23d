package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home(data HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Sprint Poker</title>
  </head>
  <body>
    <main class="shell" data-poll-single="`+itoa(data.PollSingleSeconds)+`" data-poll-multi="`+itoa(data.PollMultiSeconds)+`">
      <header class="hero">
        <span class="tag">Sprint Poker</span>
        <h1>Estimate together. Look back together.</h1>
        <p>Start a planning poker or retro session and share the link with your team.</p>
      </header>

      <section class="panel">
        <h2>Planning poker</h2>
        <p>You get an admin token for revealing and resetting votes. It is shown once.</p>
        <button id="createPoker" class="primary">Create poker session</button>
        <div id="pokerResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Retrospective</h2>
        <p>Admins manage meetings and columns; everyone can add items.</p>
        <button id="createRetro" class="primary">Create retro session</button>
        <div id="retroResult" class="result"></div>
      </section>
`)
		if data.GlobalBoards {
			_, _ = io.WriteString(w, `
      <section class="panel">
        <h2>Shared boards</h2>
        <p>The open boards need no token: session <code>`+esc(data.GlobalSessionID)+`</code>.</p>
      </section>
`)
		}
		_, _ = io.WriteString(w, `    </main>

    <script>
      async function create(kind, target) {
        target.textContent = "Creating session...";
        const res = await fetch("/api/" + kind + "-session/create", { method: "POST" });
        const data = await res.json();
        if (!res.ok) {
          target.textContent = data.error || "Failed to create session.";
          return;
        }
        target.textContent = "Session " + data.sessionId + " created. Admin token: " + data.adminToken;
      }
      document.getElementById("createPoker").addEventListener("click", () =>
        create("poker", document.getElementById("pokerResult")));
      document.getElementById("createRetro").addEventListener("click", () =>
        create("retro", document.getElementById("retroResult")));
    </script>
  </body>
</html>`)
		return nil
	})
}
