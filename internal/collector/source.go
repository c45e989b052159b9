package collector

// Kind 决定使用哪一套抽取规则
type Kind string

const (
	KindBlog   Kind = "blog"
	KindMedium Kind = "medium"
	KindHN     Kind = "hn"
)

// Transport 标记获取页面的方式，有反爬的站点走外部命令
type Transport string

const (
	TransportDirect  Transport = "direct"
	TransportCommand Transport = "command"
)

// Source 描述一个需要轮询的站点，属于静态配置
type Source struct {
	Name      string
	URL       string
	Kind      Kind
	Transport Transport
}

// DefaultSources 返回固定的数据源列表（每次返回新的切片，调用方可以放心修改）
func DefaultSources() []Source {
	return []Source{
		{Name: "OpenAI News", URL: "https://openai.com/news/", Kind: KindBlog, Transport: TransportCommand},
		{Name: "Andrej Karpathy", URL: "https://karpathy.ai", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Sam Altman", URL: "https://blog.samaltman.com/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Greg Brockman", URL: "https://blog.gregbrockman.com/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "François Chollet", URL: "https://fchollet.com/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Lilian Weng", URL: "https://lilianweng.github.io/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Christopher Olah", URL: "https://colah.github.io/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Wojciech Zaremba", URL: "https://medium.com/@woj.zaremba", Kind: KindMedium, Transport: TransportCommand},
		{Name: "Mustafa Suleyman", URL: "https://mustafa-suleyman.ai/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Google DeepMind", URL: "https://deepmind.google/blog/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Dario Amodei", URL: "https://www.darioamodei.com/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Karina Nguyen", URL: "https://karinanguyen.com/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Peter Steinberger", URL: "https://steipete.me/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Simon Willison", URL: "https://simonwillison.net/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "AI Hub Today", URL: "https://ai.hubtoday.app/", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Anthropic Research", URL: "https://www.anthropic.com/research", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Tencent Hunyuan", URL: "https://hy.tencent.com/research", Kind: KindBlog, Transport: TransportDirect},
		{Name: "Hacker News (中文)", URL: "https://hn.buzzing.cc/", Kind: KindHN, Transport: TransportDirect},
	}
}
