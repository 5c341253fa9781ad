package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>cafepulse</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.5rem; background: linear-gradient(135deg, #38bdf8, #818cf8); background-clip: text; -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
        .header .actions button { margin-left: 0.5rem; padding: 0.5rem 1rem; border-radius: 9999px; border: 1px solid #475569; background: #1e293b; color: #e2e8f0; font-weight: 600; cursor: pointer; }
        .header .actions button:disabled { opacity: 0.5; cursor: wait; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 1rem; padding: 2rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.5rem; }
        .card .label { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; margin-bottom: 0.75rem; }
        .card.accent { border-color: #38bdf8; }
        .card.success { border-color: #4ade80; }
        .card.warning { border-color: #fbbf24; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { text-align: left; padding: 0.4rem 0.25rem; border-bottom: 1px solid #334155; }
        th { color: #94a3b8; font-weight: 500; }
        .chips span { display: inline-block; margin: 0 0.35rem 0.35rem 0; padding: 0.2rem 0.6rem; border-radius: 9999px; background: #334155; font-size: 0.85rem; }
        .sub { font-size: 0.8rem; color: #64748b; margin-top: 0.5rem; }
        .history li { list-style: none; padding: 0.4rem 0; border-bottom: 1px solid #334155; }
        .footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>cafepulse</h1>
        <div class="actions">
            <button id="collect">닉네임 수집</button>
            <button id="refresh">랭킹 갱신</button>
        </div>
    </div>
    <div class="grid">
        <div class="card accent">
            <div class="label">게시글 랭킹</div>
            <table><thead><tr><th>#</th><th>닉네임</th><th>게시글</th></tr></thead><tbody id="posts"></tbody></table>
        </div>
        <div class="card success">
            <div class="label">댓글 랭킹</div>
            <table><thead><tr><th>#</th><th>닉네임</th><th>댓글</th></tr></thead><tbody id="comments"></tbody></table>
            <div class="sub" id="ranked_at"></div>
        </div>
        <div class="card warning">
            <div class="label">최근 작성자</div>
            <div class="chips" id="latest"></div>
            <div class="sub" id="run_state"></div>
        </div>
        <div class="card">
            <div class="label">수집 기록</div>
            <ul class="history" id="history"></ul>
        </div>
    </div>
    <div class="footer">Auto-refreshes every 30 seconds</div>
    <script>
        function esc(s) {
            return String(s == null ? '' : s).replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
        }
        function rows(list, field) {
            if (!list || list.length === 0) return '<tr><td colspan="3">-</td></tr>';
            return list.map(r => '<tr><td>' + esc(r.rank) + '</td><td>' + esc(r.nickName) + '</td><td>' + esc(r[field]) + '</td></tr>').join('');
        }
        async function update() {
            try {
                const status = await (await fetch('/api/status')).json();
                const rk = status.rankings || {};
                document.getElementById('posts').innerHTML = rows(rk.posts, 'post_count');
                document.getElementById('comments').innerHTML = rows(rk.comments, 'comment_count');
                document.getElementById('ranked_at').textContent = rk.collected_at && !rk.collected_at.startsWith('0001') ? new Date(rk.collected_at).toLocaleString() : '';
                const latest = (status.latest && status.latest.nicknames) || [];
                document.getElementById('latest').innerHTML = latest.map(n => '<span>' + esc(n) + '</span>').join('') || '-';
                const runs = status.runs || {};
                document.getElementById('run_state').textContent = Object.keys(runs).map(k => k + ': ' + runs[k].status).join(' · ');

                const hist = await (await fetch('/api/history')).json();
                document.getElementById('history').innerHTML = (hist.history || []).slice().reverse().map(e =>
                    '<li>' + esc(new Date(e.timestamp).toLocaleString()) + ' · ' + e.nicknames.map(esc).join(', ') + '</li>').join('');
            } catch (e) { console.error('Failed to fetch status:', e); }
        }
        async function trigger(id, path) {
            const btn = document.getElementById(id);
            btn.disabled = true;
            try { await fetch(path, { method: 'POST' }); } finally { btn.disabled = false; update(); }
        }
        document.getElementById('collect').onclick = () => trigger('collect', '/api/collect');
        document.getElementById('refresh').onclick = () => trigger('refresh', '/api/rankings/refresh');
        update();
        setInterval(update, 30000);
    </script>
</body>
</html>`
