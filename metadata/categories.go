package metadata

import "strconv"

// Privacy statuses accepted by status.privacyStatus.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// CategoryPeopleAndBlogs is the category YouTube assigns when none is given.
const CategoryPeopleAndBlogs = 22

var categories = map[int]string{
	1:  "Film & Animation",
	2:  "Autos & Vehicles",
	10: "Music",
	15: "Pets & Animals",
	17: "Sports",
	18: "Short Movies",
	19: "Travel & Events",
	20: "Gaming",
	21: "Videoblogging",
	22: "People & Blogs",
	23: "Comedy",
	24: "Entertainment",
	25: "News & Politics",
	26: "Howto & Style",
	27: "Education",
	28: "Science & Technology",
	29: "Nonprofits & Activism",
	30: "Movies",
	31: "Anime/Animation",
	32: "Action/Adventure",
	33: "Classics",
	34: "Comedy",
	35: "Documentary",
	36: "Drama",
	37: "Family",
	38: "Foreign",
	39: "Horror",
	40: "Sci-Fi/Fantasy",
	41: "Thriller",
	42: "Shorts",
	43: "Shows",
	44: "Trailers",
}

// CategoryName returns the display name of a built-in category id.
func CategoryName(id int) (string, bool) {
	name, ok := categories[id]
	return name, ok
}

// Categories returns the built-in category table keyed by id string, the
// form snippet.categoryId takes. The map is a copy.
func Categories() map[string]string {
	out := make(map[string]string, len(categories))
	for id, name := range categories {
		out[strconv.Itoa(id)] = name
	}
	return out
}

// ValidPrivacy reports whether s is a known privacy status.
func ValidPrivacy(s string) bool {
	switch s {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}
