package exportchromium

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-visual-export/export"
)

const overlayID = "visual-export-overlay"

// placeholderImage replaces assets that failed to load (cross-origin or broken).
const placeholderImage = `data:image/svg+xml;utf8,<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"><rect width="4" height="4" fill="%23e2e8f0"/></svg>`

func jsString(value string) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return `""`
	}
	return string(encoded)
}

func presentScript(regionID string) string {
	return fmt.Sprintf(`document.getElementById(%s) !== null`, jsString(regionID))
}

func rectScript(regionID string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) { return null; }
	const r = el.getBoundingClientRect();
	return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
})()`, jsString(regionID))
}

func snapshotScript(regionID string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	return el ? el.style.cssText : null;
})()`, jsString(regionID))
}

func applyScript(regionID string, overrides export.StyleOverrides) (string, error) {
	payload, err := json.Marshal(overrides)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) { return false; }
	const styles = %s;
	for (const [key, value] of Object.entries(styles)) {
		el.style.setProperty(key, value, "important");
	}
	return true;
})()`, jsString(regionID), payload), nil
}

func restoreScript(snapshot export.StyleSnapshot) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) { return false; }
	el.style.cssText = %s;
	return true;
})()`, jsString(snapshot.RegionID), jsString(snapshot.CSSText))
}

// scrollScript resolves once the scroll has been painted.
func scrollScript(regionID string) string {
	return fmt.Sprintf(`new Promise((resolve) => {
	const el = document.getElementById(%s);
	if (!el) { resolve(false); return; }
	el.scrollIntoView({block: "start", inline: "nearest", behavior: "instant"});
	requestAnimationFrame(() => requestAnimationFrame(() => resolve(true)));
})`, jsString(regionID))
}

// readyScript resolves when the region's finite animations have finished and
// fonts are loaded. Infinite animations are ignored.
func readyScript(regionID string) string {
	return fmt.Sprintf(`new Promise((resolve) => {
	const el = document.getElementById(%s);
	if (!el) { resolve(false); return; }
	const animations = (el.getAnimations ? el.getAnimations({subtree: true}) : []).filter((a) => {
		const timing = a.effect && a.effect.getComputedTiming ? a.effect.getComputedTiming() : {};
		return timing.iterations !== Infinity;
	});
	Promise.all(animations.map((a) => a.finished.catch(() => null)))
		.then(() => document.fonts ? document.fonts.ready : null)
		.then(() => requestAnimationFrame(() => requestAnimationFrame(() => resolve(true))));
})`, jsString(regionID))
}

func placeholderScript(regionID string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) { return 0; }
	let replaced = 0;
	for (const img of el.querySelectorAll("img")) {
		if (img.complete && img.naturalWidth === 0) {
			img.src = %s;
			replaced++;
		}
	}
	return replaced;
})()`, jsString(regionID), jsString(placeholderImage))
}

func overlayShowScript(message string) string {
	return fmt.Sprintf(`(() => {
	let el = document.getElementById(%[1]s);
	if (!el) {
		el = document.createElement("div");
		el.id = %[1]s;
		el.setAttribute("role", "status");
		el.setAttribute("aria-live", "polite");
		el.style.cssText = "position:fixed;top:1rem;right:1rem;z-index:2147483647;padding:.75rem 1rem;border-radius:.5rem;background:rgba(15,23,42,.9);color:#fff;font:500 14px/1.4 system-ui,sans-serif;box-shadow:0 10px 25px rgba(0,0,0,.2);";
		document.body.appendChild(el);
	}
	el.textContent = %[2]s;
	return true;
})()`, jsString(overlayID), jsString(message))
}

func overlayUpdateScript(message string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) { return false; }
	el.textContent = %s;
	return true;
})()`, jsString(overlayID), jsString(message))
}

func overlayHideScript() string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (el) { el.remove(); }
	return true;
})()`, jsString(overlayID))
}

// overlayVisibilityScript keeps the overlay out of captured bitmaps.
func overlayVisibilityScript(visible bool) string {
	visibility := "hidden"
	if visible {
		visibility = "visible"
	}
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (el) { el.style.visibility = %s; }
	return true;
})()`, jsString(overlayID), jsString(visibility))
}
