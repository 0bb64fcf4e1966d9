package assistant

var (
	Greeting = `I answer questions using my resume, projects, and professional experience in data science and full-stack web development.`

	ExperienceResponse = `I'm a Data Scientist and Full-stack Developer with 3+ years of experience. I turn complex data into actionable insights and build user-friendly web apps with React, Next.js, Node.js, Python, TensorFlow, PyTorch, and tools like Power BI and Tableau.`

	DataScienceResponse = `I work with TensorFlow, PyTorch, scikit-learn, Keras, and Deep Learning for data analysis and ML models. I also use Power BI, Tableau, Excel, and Deepnote for visualization and reporting.`

	WebResponse = `I build web applications with React, Next.js, Node.js, HTML, CSS, and JavaScript. My projects include resume builders with live preview and PDF generation, weather apps, and portfolio sites.`

	ProjectResponse = `Key projects: Naureen Food and Beverage Limited (HTML/CSS/JS), LaTeX-Based CV Builder (React, TypeScript, styled-components, Axios), Portfolio (React, Next.js, Tailwind), and Weather App (React, WeatherAPI, Bootstrap).`

	SkillsResponse = `I use Java, Python, C, JavaScript for programming. For data and ML: TensorFlow, scikit-learn, Keras, PyTorch. For web: HTML, CSS, React, Next.js. Tools: MongoDB, MariaDB, PowerBI, Tableau, Excel, Deepnote, Selenium, GitHub.`

	EducationResponse = `I focus on self-taught and continuous learning in Data Science and Web Development — Python, React, ML, and full-stack technologies.`

	ContactResponse = `You can reach me at contact@alsabribhuiyan.xyz. Links to GitHub and LinkedIn are in the Contact section below.`

	DefaultResponse = `I can answer questions about my data science and full-stack experience, projects (resume builder, weather app, portfolio), technical skills, and how to get in touch. What would you like to know?`
)
