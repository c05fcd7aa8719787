package gpu

// VertexShader transforms positions by the MVP uniform and passes texture
// coordinates through.
const VertexShader = `#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoords;
uniform mat4 MVP;
out vec2 TexCoords;
void main()
{
    gl_Position = MVP * vec4(aPos, 1.0);
    TexCoords = aTexCoords;
}
` + "\x00"

// FragmentShader samples the mesh texture bound to unit 0.
const FragmentShader = `#version 330 core
in vec2 TexCoords;
uniform sampler2D uTexture;
out vec4 FragColor;
void main()
{
    FragColor = texture(uTexture, TexCoords);
}
` + "\x00"

// Uniform names used by the built-in shaders.
const (
	UniformMVP     = "MVP"
	UniformTexture = "uTexture"
)
