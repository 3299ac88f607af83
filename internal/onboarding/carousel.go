package onboarding

// Slide is one page of the onboarding carousel.
type Slide struct {
	ID       string `json:"id"`
	Image    string `json:"image"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

var DefaultSlides = []Slide{
	{
		ID:       "1",
		Image:    "onboarding/slide1-scooter.jpg",
		Title:    "Envoyez vos colis partout au Sénégal",
		Subtitle: "Dites-nous où livrer, et nous trouvons le meilleur livreur près de chez vous.",
	},
	{
		ID:       "2",
		Image:    "onboarding/slide2-tracking.png",
		Title:    "Suivez en temps réel",
		Subtitle: "Localisez votre colis à chaque instant grâce au suivi GPS haute précision.",
	},
	{
		ID:       "3",
		Image:    "onboarding/slide3-trust.png",
		Title:    "Tarifs transparents, sans surprises",
		Subtitle: "Obtenez le prix exact avant d'envoyer. Payez uniquement ce qui est affiché.",
	},
}

// Carousel tracks the visible slide. It is not safe for concurrent use.
type Carousel struct {
	slides []Slide
	index  int
}

func NewCarousel(slides []Slide) *Carousel {
	return &Carousel{slides: slides}
}

func (c *Carousel) Index() int { return c.index }

func (c *Carousel) Len() int { return len(c.slides) }

func (c *Carousel) Current() Slide {
	if len(c.slides) == 0 {
		return Slide{}
	}
	return c.slides[c.index]
}

// Next moves to the following slide. It reports true when the carousel was
// already on the last slide, meaning onboarding is finished.
func (c *Carousel) Next() (finished bool) {
	if c.index < len(c.slides)-1 {
		c.index++
		return false
	}
	return true
}

// Back moves to the previous slide; a no-op on the first one.
func (c *Carousel) Back() {
	if c.index > 0 {
		c.index--
	}
}

// ShowBack reports whether the back button is visible.
func (c *Carousel) ShowBack() bool { return c.index > 0 }
