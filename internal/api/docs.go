package api

const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
  <title>tabswipe API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
</head>
<body style="height: 100vh; margin: 0; position: relative;">
  <a href="/docs/events" style="
    position: fixed;
    top: 12px;
    right: 16px;
    z-index: 9999;
    background: #161b22;
    border: 1px solid #30363d;
    border-radius: 6px;
    color: #58a6ff;
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
    font-size: 12px;
    font-weight: 500;
    padding: 5px 12px;
    text-decoration: none;
  ">Event Feed Docs →</a>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
    darkMode
  />
</body>
</html>`

const eventsDocsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Feed · tabswipe</title>
  <style>
    body { margin: 0; padding: 32px 48px; max-width: 860px; background: #0d1117; color: #c9d1d9;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; font-size: 14px; line-height: 1.65; }
    a { color: #58a6ff; text-decoration: none; }
    h1 { font-size: 22px; } h2 { font-size: 16px; margin-top: 28px; border-bottom: 1px solid #30363d; padding-bottom: 4px; }
    code, pre { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12.5px; }
    pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; padding: 12px 16px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; } td, th { border: 1px solid #30363d; padding: 6px 10px; text-align: left; }
  </style>
</head>
<body>
  <p><a href="/docs">← REST API</a></p>
  <h1>Event Feed</h1>
  <p><code>GET /api/v1/events</code> streams Server-Sent Events. A new client first receives the
  latest <code>state</code> event, then every event as it is published. A comment line is sent
  every 25 seconds to keep idle connections open. Slow clients have events dropped.</p>

  <h2>Feeds</h2>
  <table>
    <tr><th>event</th><th>data</th></tr>
    <tr><td><code>state</code></td><td>The full session state, as returned by <code>GET /api/v1/session</code>, after every change.</td></tr>
    <tr><td><code>action</code></td><td>One object per review action: <code>session_id</code>, <code>action</code>, <code>detail</code>, <code>at</code>.</td></tr>
  </table>
  <p>Restrict the stream with <code>?feeds=state</code> or <code>?feeds=state,action</code>.</p>

  <h2>Example</h2>
  <pre>$ curl -N http://127.0.0.1:8190/api/v1/events?feeds=action

event: action
data: {"session_id":"6f1c…","action":"close","detail":"closed https://example.com/","at":"2026-01-02T03:04:05Z"}</pre>
</body>
</html>`
