package server

// graphiqlPage is a minimal, dependency-free GraphiQL-style IDE: a single
// HTML document that posts queries to the same endpoint it was served from.
// It intentionally does not pull in the full GraphiQL React bundle — this is
// a developer convenience, not a product surface (spec §1 non-goal).
var graphiqlPage = []byte(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>fedgraph-gateway</title>
<style>
  html, body { height: 100%; margin: 0; font-family: -apple-system, sans-serif; }
  #app { display: flex; flex-direction: column; height: 100%; }
  textarea { flex: 1; font-family: ui-monospace, monospace; font-size: 13px; padding: 8px; border: 0; }
  #query { border-bottom: 1px solid #ccc; }
  #result { background: #f7f7f7; }
  #bar { padding: 6px 8px; border-bottom: 1px solid #ccc; }
  button { padding: 4px 12px; }
</style>
</head>
<body>
<div id="app">
  <div id="bar"><button onclick="run()">Run (Ctrl+Enter)</button></div>
  <textarea id="query" placeholder="query { ... }">{ __schema { queryType { name } } }</textarea>
  <textarea id="result" readonly></textarea>
</div>
<script>
async function run() {
  const query = document.getElementById('query').value;
  const res = await fetch(location.pathname, {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({query}),
  });
  const text = await res.text();
  try {
    document.getElementById('result').value = JSON.stringify(JSON.parse(text), null, 2);
  } catch (e) {
    document.getElementById('result').value = text;
  }
}
document.getElementById('query').addEventListener('keydown', (e) => {
  if (e.key === 'Enter' && (e.ctrlKey || e.metaKey)) run();
});
</script>
</body>
</html>
`)
