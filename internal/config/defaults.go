package config

// DefaultBlockPhrases are lower-case fragments that mark a block or challenge
// page. Bare words such as "robot" or "captcha" and generic <noscript> copy are
// avoided; they appear on legitimate news pages. CAPTCHA widgets are detected
// separately from their markup.
func DefaultBlockPhrases() []string {
	return []string{
		"complete the captcha",
		"solve the captcha",
		"access denied",
		"acceso denegado",
		"are you a robot",
		"unusual traffic",
		"cf-challenge",
		"checking your browser",
		"enable javascript and cookies to continue",
		"attention required",
		"request blocked",
		"bot detection",
		"verify you are human",
	}
}

// DefaultStripSelectors are removed before selector extraction.
func DefaultStripSelectors() []string {
	return []string{
		"script", "style", "noscript", "iframe", "nav", "header", "footer", "aside",
		"form", "button",
		".comments", "#comments", ".related", ".related-news", ".paywall",
		".share", ".social-share", ".newsletter", ".advertisement", ".ad",
		"[class*='banner']", "[id*='cookie']",
	}
}

// DefaultDomainSelectors cover the Spanish national press.
func DefaultDomainSelectors() []DomainSelector {
	return []DomainSelector{
		{Domain: "elpais.com", Selectors: []string{
			"article", "div.a_c_text", "div.articulo-cuerpo", `div[itemprop="articleBody"]`,
		}},
		{Domain: "elmundo.es", Selectors: []string{
			"div.ue-l-article__body", "div.ue-c-article__body", "div.ue-c-article__premium-body",
		}},
		{Domain: "abc.es", Selectors: []string{
			"div.voc-article-content", "div.cuerpo-texto", `article[itemprop="articleBody"]`,
		}},
		{Domain: "lavanguardia.com", Selectors: []string{
			"div.article-modules", "div.article-body", "div.main-article-body",
		}},
		{Domain: "larazon.es", Selectors: []string{
			"div.article-content", "div.texto-noticia", "div.article-body-content",
		}},
	}
}

// DefaultRemovePatterns are trailing boilerplate fragments. Each one is
// applied per line and anchored to the end of the line.
func DefaultRemovePatterns() []string {
	return []string{
		`(?:leer|lea) también:.*$`,
		`ver galería.*$`,
		`relacionad[oa]s?:.*$`,
		`suscríbete.*$`,
		`más información:?.*$`,
		`\[(?:foto|vídeo|video|galería)\][ \t]*$`,
		`compartir en:?.*$`,
		`síguenos en:?.*$`,
		`te puede interesar:.*$`,
		`newsletter.*$`,
		`sigue leyendo.*$`,
		`archivado en:.*$`,
		`read (?:also|more):.*$`,
		`share on:?.*$`,
		`follow us on:?.*$`,
	}
}
